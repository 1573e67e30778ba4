package ui

import (
	"GopherAR/internal/logger"

	"github.com/sqweek/dialog"
	"go.uber.org/zap"
)

// DialogNotifier shows a native message box and blocks until it is dismissed.
type DialogNotifier struct{}

func (DialogNotifier) Notify(title, message string) {
	dialog.Message("%s", message).Title(title).Info()
}

// LogNotifier writes messages to the log, for headless runs and --no-dialog.
type LogNotifier struct{}

func (LogNotifier) Notify(title, message string) {
	logger.Log.Info(message, zap.String("title", title))
}
