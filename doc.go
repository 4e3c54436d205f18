// Package streamlin provides online (one example at a time) linear learners
// for Go services that train on a live stream instead of a fixed dataset.
//
// Every model learns from sparse feature dictionaries, keeps its parameters
// in sparse vectors and can predict at any point of the stream. Nothing is
// ever refitted from scratch.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/streamlin/core/model"
//	    "github.com/YuminosukeSato/streamlin/linear_model"
//	    "github.com/YuminosukeSato/streamlin/optim"
//	)
//
//	func main() {
//	    opt, err := optim.NewAdaGrad(optim.WithAdaGradLR(0.5))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    clf, err := linear_model.NewSoftmaxRegression[string](linear_model.WithSoftmaxOptimizer(opt))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    for _, ex := range []model.Example[string]{
//	        {X: model.Features{"meow": 1}, Y: "cat"},
//	        {X: model.Features{"woof": 1}, Y: "dog"},
//	    } {
//	        if err := clf.LearnOne(ex.X, ex.Y); err != nil {
//	            log.Fatal(err)
//	        }
//	    }
//
//	    label, _ := clf.PredictOne(model.Features{"meow": 1})
//	    fmt.Println(label) // cat
//	}
//
// # Packages
//
//   - core/sparse: sparse vectors keyed by feature name
//   - core/model: Features, Example and the Learner/Classifier interfaces
//   - optim: SGD, AdaGrad and FTRL-Proximal per-coordinate optimizers
//   - optim/losses: multi-class losses (cross-entropy)
//   - linear_model: ALMAClassifier and SoftmaxRegression
//   - preprocessing: running StandardScaler and MinMaxScaler
//   - metrics: online Accuracy, LogLoss and ConfusionMatrix
//   - drift: DDM and ADWIN concept drift detectors
//   - evaluate: progressive validation, learning curves, Prometheus metrics
//   - pkg/config: viper configuration and component factories
//   - pkg/errors, pkg/log: error categories and structured logging
//
// The streamlin command (cmd/streamlin) runs progressive validation over a
// JSON lines stream from a file or stdin.
//
// # Concurrency
//
// Models are not safe for concurrent use. A single goroutine should own a
// model; model.FitStream and evaluate.ProgressiveValScore consume channels
// so producers can run elsewhere.
package streamlin
