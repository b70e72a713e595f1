package http

import "github.com/secmon-lab/guildsweep/pkg/domain/model"

// ClassifyError exposes classifyError for testing
func ClassifyError(err error) (int, model.ErrorLabel) {
	return classifyError(err)
}
