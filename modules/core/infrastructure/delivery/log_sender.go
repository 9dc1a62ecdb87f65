package delivery

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/bankhub/testcard-portal/modules/core/domain/aggregates/user"
)

// LogSender writes codes to the application log instead of a delivery
// channel. Development and test environments only.
type LogSender struct {
	logger *logrus.Logger
}

func NewLogSender(logger *logrus.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendOTP(_ context.Context, u user.User, code string) error {
	s.logger.WithFields(logrus.Fields{
		"email": u.Email(),
		"code":  code,
	}).Info("otp issued")
	return nil
}
