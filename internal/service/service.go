// Package service holds the domain logic shared by the HTTP handlers and the
// view models. Services validate input, stamp identity fields from the
// explicit session actor and delegate persistence to a repository set.
package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/dto"
	"github.com/noah-isme/plaksha-connect/internal/session"
)

const tracerPrefix = "github.com/noah-isme/plaksha-connect/internal/service/"

// Notifier delivers notifications. A fan-out passes every recipient in one
// call. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, payloads ...dto.NotificationCreateRequest)
}

// NopNotifier drops every notification. It is used when the upstream API
// raises notifications itself.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, ...dto.NotificationCreateRequest) {}

// Clock returns the current time.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// authorize rejects anonymous callers and binds the actor to ctx so the
// remote adapter can forward its credential.
func authorize(ctx context.Context, actor session.Actor) (context.Context, error) {
	if !actor.Authenticated() {
		return ctx, apperror.Unauthorized("authentication required")
	}
	return session.WithActor(ctx, actor), nil
}

func requireStaff(actor session.Actor, action string) error {
	if actor.IsStaff() {
		return nil
	}
	return apperror.Forbidden("only admins and moderators can %s", action)
}

func requireOwner(actor session.Actor, ownerID, action string) error {
	if actor.Owns(ownerID) {
		return nil
	}
	return apperror.Forbidden("not allowed to %s", action)
}

// validateStruct runs the validator and turns failures into Validation
// errors that still unwrap to validator.ValidationErrors.
func validateStruct(v *validator.Validate, payload interface{}) error {
	if err := v.Struct(payload); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return apperror.Wrap(err, apperror.KindValidation, describeValidation(fieldErrs))
		}
		return apperror.Wrap(err, apperror.KindValidation, "invalid payload")
	}
	return nil
}

func describeValidation(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", field))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		case "min", "max", "len":
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(parts, "; ")
}

// NewValidator returns a validator that reports json field names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return v
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return field.Name
	}
	return name
}

func componentLogger(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}

// plainText strips markup and keeps the text unescaped for JSON storage.
func plainText(policy *bluemonday.Policy, value string) string {
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(value)))
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	return &v
}

func strPtr(v string) *string { return &v }
