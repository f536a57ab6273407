package service

import "errors"

var (
	ErrInvalidProduct  = errors.New("invalid product data")
	ErrInvalidImage    = errors.New("invalid image")
	ErrDetectionFailed = errors.New("detection failed")
)
