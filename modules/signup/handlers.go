package signup

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrymomot/onboardkit/handler"
	"github.com/dmitrymomot/onboardkit/pkg/apiclient"
	"github.com/dmitrymomot/onboardkit/pkg/authsession"
	"github.com/dmitrymomot/onboardkit/pkg/clientip"
	"github.com/dmitrymomot/onboardkit/pkg/location"
	"github.com/dmitrymomot/onboardkit/pkg/logger"
	flow "github.com/dmitrymomot/onboardkit/pkg/signup"
	"github.com/dmitrymomot/onboardkit/pkg/validator"
)

// limitStarts rejects flow creation once the client IP ran out of starts.
func limitStarts[R any](s *Service) handler.Decorator[R] {
	return func(next handler.HandlerFunc[R]) handler.HandlerFunc[R] {
		return func(ctx handler.Context, req R) handler.Response {
			if s.starts == nil {
				return next(ctx, req)
			}

			ip := clientip.FromContext(ctx)
			if ip == "" {
				ip = clientip.GetIP(ctx.Request())
			}
			res, err := s.starts.Allow(ctx, "signup_start:"+ip)
			if err != nil {
				s.logger.WarnContext(ctx, "start limiter unavailable", logger.Error(err))
				return next(ctx, req)
			}
			if !res.Allowed() {
				ctx.ResponseWriter().Header().Set("Retry-After", retryAfter(res.RetryAfter().Seconds()))
				return handler.Error(handler.ErrTooManyRequests.WithMessage("too many signup attempts, please try again later"))
			}
			return next(ctx, req)
		}
	}
}

func (s *Service) lookup(ctx handler.Context) (*flow.Flow, error) {
	return s.registry.Get(ctx.Param("id"))
}

func (s *Service) create(ctx handler.Context, _ struct{}) handler.Response {
	f, err := s.registry.Create(ctx)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(f.View(), handler.WithJSONStatus(http.StatusCreated))
}

func (s *Service) view(ctx handler.Context, _ struct{}) handler.Response {
	f, err := s.lookup(ctx)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(f.View())
}

func (s *Service) update(ctx handler.Context, req updateRequest) handler.Response {
	f, err := s.lookup(ctx)
	if err != nil {
		return handler.Error(err)
	}
	if err := f.Update(req.apply); err != nil {
		return handler.Error(err)
	}
	return handler.JSON(f.View())
}

func (s *Service) next(ctx handler.Context, _ struct{}) handler.Response {
	f, err := s.lookup(ctx)
	if err != nil {
		return handler.Error(err)
	}
	if _, err := f.Next(ctx); err != nil {
		return handler.Error(err)
	}
	return handler.JSON(f.View())
}

func (s *Service) previous(ctx handler.Context, _ struct{}) handler.Response {
	f, err := s.lookup(ctx)
	if err != nil {
		return handler.Error(err)
	}
	if err := f.Previous(ctx); err != nil {
		return handler.Error(err)
	}
	return handler.JSON(f.View())
}

func (s *Service) sendCode(ctx handler.Context, _ struct{}) handler.Response {
	f, err := s.lookup(ctx)
	if err != nil {
		return handler.Error(err)
	}
	if err := f.RequestCode(ctx); err != nil {
		return handler.Error(err)
	}
	return handler.JSON(f.View())
}

func (s *Service) resendCode(ctx handler.Context, _ struct{}) handler.Response {
	f, err := s.lookup(ctx)
	if err != nil {
		return handler.Error(err)
	}
	if err := f.ResendCode(ctx); err != nil {
		return handler.Error(err)
	}
	return handler.JSON(f.View())
}

func (s *Service) verifyCode(ctx handler.Context, req verifyRequest) handler.Response {
	f, err := s.lookup(ctx)
	if err != nil {
		return handler.Error(err)
	}
	if err := f.VerifyCode(ctx, req.Code); err != nil {
		return handler.Error(err)
	}
	return handler.JSON(f.View())
}

func (s *Service) locationOptions(ctx handler.Context, req locationRequest) handler.Response {
	f, err := s.lookup(ctx)
	if err != nil {
		return handler.Error(err)
	}
	level, err := apiclient.ParseLevel(req.Level)
	if err != nil {
		return handler.Error(err)
	}

	opts, err := f.LocationOptions(ctx, level)
	if err != nil {
		return handler.Error(err)
	}
	if opts == nil {
		opts = []location.Option{}
	}
	return handler.JSON(flow.LocationView{
		Level:    level.String(),
		Options:  opts,
		Selected: f.Cascade().Selected(level),
		Name:     f.Cascade().Name(level),
	})
}

func (s *Service) selectLocation(ctx handler.Context, req locationRequest) handler.Response {
	f, err := s.lookup(ctx)
	if err != nil {
		return handler.Error(err)
	}
	level, err := apiclient.ParseLevel(req.Level)
	if err != nil {
		return handler.Error(err)
	}

	if err := f.SelectLocation(ctx, level, req.ID); err != nil {
		switch {
		case errors.Is(err, location.ErrUnknownOption):
			err = validator.Field(level.String(), "select a valid "+levelLabel(level), "validation.location_unknown")
		case errors.Is(err, location.ErrParentNotSet):
			err = validator.Field(level.String(), "select a "+levelLabel(level.Parent())+" first", "validation.location_parent")
		}
		return handler.Error(err)
	}
	return handler.JSON(f.View())
}

func (s *Service) submit(ctx handler.Context, _ struct{}) handler.Response {
	f, err := s.lookup(ctx)
	if err != nil {
		return handler.Error(err)
	}
	result, err := f.Submit(ctx)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(result)
}

func (s *Service) login(ctx handler.Context, req loginRequest) handler.Response {
	if err := validator.Apply(
		validator.RequiredString(flow.FieldEmail, req.Email),
		validator.ValidEmail(flow.FieldEmail, req.Email),
		validator.RequiredString(flow.FieldPassword, req.Password),
	); err != nil {
		return handler.Error(err)
	}

	resp, err := s.api.Login(ctx, req.Email, req.Password)
	if err != nil {
		return handler.Error(err)
	}
	sess, err := s.sessions.Create(ctx, "", authsession.FromLogin(resp))
	if err != nil {
		return handler.Error(err)
	}

	s.logger.InfoContext(ctx, "user logged in", logger.Event("login"), logger.Email(req.Email))
	return handler.JSON(loginResponse{
		SessionKey:   sess.Key,
		MobileNumber: sess.MobileNumber,
		ProfilePhoto: sess.ProfilePhoto,
	})
}

func (s *Service) logout(ctx handler.Context, _ struct{}) handler.Response {
	key := s.sessions.KeyFromRequest(ctx.Request())
	if err := s.sessions.Invalidate(ctx, key); err != nil {
		return handler.Error(err)
	}
	s.logger.DebugContext(ctx, "user logged out", logger.Event("logout"))
	return handler.Empty()
}

func levelLabel(l apiclient.Level) string {
	return strings.ReplaceAll(l.String(), "_", " ")
}

func retryAfter(seconds float64) string {
	return strconv.Itoa(int(math.Max(1, math.Ceil(seconds))))
}
