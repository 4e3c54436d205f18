// Package log defines standard attribute keys for online learning.
//
// Keys follow a hierarchical naming convention ("model.name",
// "stream.samples") so log lines from the evaluator and the CLI can be
// filtered uniformly.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model.
	// Examples: "ALMAClassifier", "SoftmaxRegression"
	ModelNameKey = "model.name"

	// OptimizerKey identifies the optimizer driving a linear model.
	// Examples: "SGD", "AdaGrad", "FTRLProximal"
	OptimizerKey = "model.optimizer"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies which component is logging.
	ComponentKey = "ml.component"
)

// Stream Characteristics
const (
	// SamplesKey is the number of examples consumed so far.
	SamplesKey = "stream.samples"

	// FeaturesKey is the number of features of the current example.
	FeaturesKey = "stream.features"

	// ClassesKey is the number of labels discovered so far.
	ClassesKey = "stream.classes"

	// SourceKey names the origin of the stream (file path or "stdin").
	SourceKey = "stream.source"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// ThroughputKey records examples processed per second.
	ThroughputKey = "perf.samples_per_second"

	// AccuracyKey records running accuracy in [0, 1].
	AccuracyKey = "metrics.accuracy"

	// LogLossKey records running log loss.
	LogLossKey = "metrics.log_loss"

	// MistakesKey records the number of wrong predictions so far.
	MistakesKey = "metrics.mistakes"
)

// Drift Detection
const (
	// DriftDetectedKey is true when the detector signalled drift.
	DriftDetectedKey = "drift.detected"

	// DriftWarningKey is true when the detector entered its warning zone.
	DriftWarningKey = "drift.warning"

	// ErrorRateKey is the detector's current error rate.
	ErrorRateKey = "drift.error_rate"
)

// Error Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// SuggestionKey provides helpful suggestions for resolving issues.
	SuggestionKey = "error.suggestion"
)

// Hyperparameters
const (
	// LearningRateKey records the learning rate for gradient-based optimizers.
	LearningRateKey = "hyperparams.learning_rate"

	// RegularizationKey records regularization strength.
	RegularizationKey = "hyperparams.regularization"
)

// Standard attribute values.
const (
	OperationLearnOne        = "learn_one"
	OperationPredictOne      = "predict_one"
	OperationProgressiveEval = "progressive_val_score"

	ErrorInvalidInput         = "INVALID_INPUT"
	ErrorInvalidConfiguration = "INVALID_CONFIGURATION"
	ErrorNumerical            = "NUMERICAL_INSTABILITY"
)
