package reminder

import (
	"context"
	"log/slog"
)

// Severity is the severity of a status message.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// StatusSink shows short status messages to the user. How long a message
// stays visible is up to the sink.
type StatusSink interface {
	Report(ctx context.Context, message string, severity Severity)
}

// StatusFunc is a function that implements StatusSink.
type StatusFunc func(ctx context.Context, message string, severity Severity)

// Report implements StatusSink.
func (f StatusFunc) Report(ctx context.Context, message string, severity Severity) {
	f(ctx, message, severity)
}

// LogStatus reports status messages to a logger. Errors are logged as
// warnings, since none of them are fatal.
type LogStatus struct {
	Logger *slog.Logger
}

// Report implements StatusSink.
func (s LogStatus) Report(ctx context.Context, message string, severity Severity) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	level := slog.LevelInfo
	if severity == SeverityError {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, message, "severity", string(severity))
}

// Status messages.
const (
	statusAlreadyRunning    = "กำลังรันอยู่แล้ว"
	statusEmptyInput        = "กรุณากรอกตารางเวลาบอส"
	statusNothingToSchedule = "ไม่พบข้อมูลบอสที่ถูกต้อง หรือเวลาทั้งหมดผ่านไปแล้ว"
	statusStarted           = "เริ่มรันการแจ้งเตือนแล้ว (%d รายการ)"
	statusCleared           = "ล้างค่าทั้งหมดแล้ว"
	statusRestored          = "โหลดตารางที่บันทึกไว้แล้ว (%d รายการ)"
	statusPermissionGranted = "ได้รับสิทธิ์การแจ้งเตือนแล้ว"
	statusUnsupported       = "ระบบของคุณไม่รองรับการแจ้งเตือน"
)
