package universei18n

import (
	"context"

	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// Translate performs a quick translation based on the supplied message id,
// in the locale of the connection the current code runs on behalf of.
func (s *Service) Translate(ctx context.Context, messageID string) string {
	return s.TranslateWithMap(ctx, messageID, map[string]any{})
}

// TranslateWithMap performs a translation with template variables.
func (s *Service) TranslateWithMap(ctx context.Context, messageID string, variables map[string]any) string {
	return s.TranslateWithMapAndCount(ctx, messageID, variables, 1)
}

// TranslateWithMapAndCount performs a translation with template variables and
// can pluralize. The locale is resolved from the ambient connection, then the
// process current locale, then the default locale.
func (s *Service) TranslateWithMapAndCount(
	ctx context.Context,
	messageID string,
	variables map[string]any,
	count int,
) string {
	locales := []string{
		s.LocaleForConnection(ctx),
		s.store.CurrentLocale(),
		s.store.DefaultLocale(),
	}

	translated, err := s.store.Localize(locales, &i18n.LocalizeConfig{
		MessageID:      messageID,
		DefaultMessage: &i18n.Message{ID: messageID},
		TemplateData:   variables,
		PluralCount:    count,
	})
	if err != nil {
		s.Log(ctx).WithError(err).WithField("messageID", messageID).
			Error("TranslateWithMapAndCount -- could not perform translation")
	}

	return translated
}
