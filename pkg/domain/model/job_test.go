package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/nodrums/nodrums/pkg/domain/model"
)

func TestStatusUpdateString(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)
	u := model.StatusUpdate{At: at, Message: "Separation complete"}

	gt.Value(t, u.String()).Equal("2024-03-01T12:30:45Z - Separation complete")
}
