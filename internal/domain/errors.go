package domain

import "errors"

var (
	ErrDeploymentNotFound = errors.New("deployment not found")
	ErrProviderNotFound   = errors.New("provider not found")
)
