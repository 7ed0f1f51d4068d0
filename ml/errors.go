package ml

import "errors"

var (
	ErrTrainingFailure  = errors.New("training failed")
	ErrArtifactNotFound = errors.New("model artifact not found")
	ErrArtifactMismatch = errors.New("model artifact files do not belong together")
	ErrUnknownColumn    = errors.New("no encoder for column")
	ErrUnknownCode      = errors.New("code outside encoder range")
	ErrFeatureWidth     = errors.New("feature vector width does not match model")
)
