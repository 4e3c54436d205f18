package optim

import (
	"github.com/YuminosukeSato/streamlin/core/sparse"
	"github.com/YuminosukeSato/streamlin/pkg/errors"
)

// SGD is plain stochastic gradient descent with a constant learning rate:
//
//	w[i] -= lr * g[i]
type SGD struct {
	Base
	lr float64
}

// NewSGD creates an SGD optimizer. lr must be positive.
func NewSGD(lr float64) (*SGD, error) {
	if !(lr > 0) {
		return nil, errors.NewValidationError("lr", "learning rate must be positive", lr)
	}
	return &SGD{lr: lr}, nil
}

// LearningRate returns the configured learning rate.
func (o *SGD) LearningRate() float64 {
	return o.lr
}

func (o *SGD) Apply(w, g *sparse.Vector) *sparse.Vector {
	g.Range(func(i string, gi float64) bool {
		w.Add(i, -o.lr*gi)
		return true
	})
	o.step()
	return w
}

func (o *SGD) Clone() Optimizer {
	c := *o
	return &c
}

func (o *SGD) Name() string { return "SGD" }
