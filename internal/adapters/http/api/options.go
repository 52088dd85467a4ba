package api

import "github.com/benjmor/tabroom-auto-summarize/pkg/logger"

// Option configures a Server.
type Option func(*Server)

// WithMaxBodyBytes caps request bodies. Non-positive values keep the default.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithMaxResultsLimit caps the limit parameter of list endpoints.
func WithMaxResultsLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithExportSheet names the results sheet of xlsx exports.
func WithExportSheet(name string) Option {
	return func(s *Server) {
		s.exportSheet = name
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
