package handler

const (
	errInternalServer = "internal server error"
	errJobNotFound    = "job not found"
	errBadRequest     = "invalid request body"
)
