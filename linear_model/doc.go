// Package linear_model provides online linear classifiers that learn from
// one example at a time.
//
// ALMAClassifier is a self-contained binary margin classifier.
// SoftmaxRegression is a multi-class model with one weight vector and one
// independent optimizer per label, driven by a pluggable multi-class loss.
//
// Neither model is safe for concurrent use; callers serialize access.
package linear_model
