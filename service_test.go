package universei18n_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	universei18n "github.com/klablink/meteor-universe-i18n"
	"github.com/klablink/meteor-universe-i18n/config"
	"github.com/klablink/meteor-universe-i18n/connection"
	"github.com/klablink/meteor-universe-i18n/store"
)

type wireMessage struct {
	Msg    string `json:"msg"`
	ID     string `json:"id,omitempty"`
	Method string `json:"method,omitempty"`
	Params []any  `json:"params,omitempty"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

type ServiceSuite struct {
	suite.Suite

	cfg     *config.I18NConfig
	service *universei18n.Service
	http    *httptest.Server
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.cfg = &config.I18NConfig{
		LogLevel:                     "error",
		LogTimeFormat:                "2006-01-02T15:04:05Z07:00",
		ServiceName:                  "universe-i18n-test",
		WebsocketPath:                "/websocket",
		RoutePrefix:                  "/universe/locale",
		DefaultLocale:                "en-US",
		SameLocaleOnServerConnection: true,
		RefreshWorkerCount:           1,
		Headers:                      map[string]string{"Cache-Control": "no-cache"},
	}

	service, err := universei18n.NewService(context.Background(), "universe-i18n-test",
		universei18n.WithConfig(s.cfg))
	s.Require().NoError(err)
	s.service = service

	s.http = httptest.NewServer(service.Handler())
	s.T().Cleanup(s.http.Close)
}

func (s *ServiceSuite) addEnglish() {
	s.Require().NoError(s.service.AddTranslations("en-US", store.Tree{
		"common": map[string]any{"greeting": "Hello"},
	}))
}

func (s *ServiceSuite) get(target string) *http.Response {
	resp, err := s.http.Client().Get(s.http.URL + target)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (s *ServiceSuite) TestServesLoadedLocaleOverHTTP() {
	s.addEnglish()

	resp := s.get("/universe/locale/en-US?type=json")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	s.Equal("no-cache", resp.Header.Get("Cache-Control"))
	s.NotEmpty(resp.Header.Get("Last-Modified"))

	var tree map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&tree))
	common, ok := tree["common"].(map[string]any)
	s.Require().True(ok)
	s.Equal("Hello", common["greeting"])
}

func (s *ServiceSuite) TestNeverLoadedLocaleIs501() {
	resp := s.get("/universe/locale/sw")
	s.Equal(http.StatusNotImplemented, resp.StatusCode)
}

func (s *ServiceSuite) TestUnsupportedTypeIs415() {
	s.addEnglish()

	resp := s.get("/universe/locale/en-US?type=xml")
	s.Equal(http.StatusUnsupportedMediaType, resp.StatusCode)
}

func (s *ServiceSuite) TestAddTranslationsInvalidatesCacheEntry() {
	s.addEnglish()
	first := s.service.Cache().Get("en-US")
	s.Require().False(first.UpdatedAt.IsZero())

	s.addEnglish()
	second := s.service.Cache().Get("en-US")
	s.NotSame(first, second, "merge drops the stale entry")
}

func (s *ServiceSuite) dialSocket() *websocket.Conn {
	wsURL := "ws" + strings.TrimPrefix(s.http.URL, "http") + s.cfg.WebsocketPath
	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	s.Require().NoError(err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	s.T().Cleanup(func() { _ = ws.Close() })

	s.Require().Eventually(func() bool {
		return s.service.Registry().Len() == 1
	}, time.Second, 10*time.Millisecond)
	return ws
}

func (s *ServiceSuite) call(ws *websocket.Conn, params []any) wireMessage {
	s.Require().NoError(ws.WriteJSON(&wireMessage{
		Msg:    "method",
		ID:     "1",
		Method: universei18n.MethodSetServerLocale,
		Params: params,
	}))

	var reply wireMessage
	s.Require().NoError(ws.ReadJSON(&reply))
	return reply
}

func (s *ServiceSuite) TestSetServerLocaleForConnection() {
	ws := s.dialSocket()

	reply := s.call(ws, []any{"fr"})
	s.Empty(reply.Error)

	ids := s.service.Registry().Connections()
	s.Require().Len(ids, 1)
	locale, ok := s.service.Registry().Locale(ids[0])
	s.True(ok)
	s.Equal("fr", locale)
}

func (s *ServiceSuite) TestNonStringLocaleIsSilentNoOp() {
	ws := s.dialSocket()

	ids := s.service.Registry().Connections()
	s.Require().Len(ids, 1)
	s.Require().NoError(s.service.Registry().SetLocale(context.Background(), ids[0], "fr"))

	reply := s.call(ws, []any{float64(42)})
	s.Empty(reply.Error)

	locale, _ := s.service.Registry().Locale(ids[0])
	s.Equal("fr", locale, "a non-string argument changes nothing")
}

func (s *ServiceSuite) TestDisabledFeatureFlagIsSilentNoOp() {
	s.cfg.SameLocaleOnServerConnection = false
	ws := s.dialSocket()

	reply := s.call(ws, []any{"fr"})
	s.Empty(reply.Error)

	ids := s.service.Registry().Connections()
	s.Require().Len(ids, 1)
	locale, _ := s.service.Registry().Locale(ids[0])
	s.Empty(locale)
}

func (s *ServiceSuite) TestConnectionCloseCleansRegistry() {
	ws := s.dialSocket()
	s.Require().NoError(ws.Close())

	s.Require().Eventually(func() bool {
		return s.service.Registry().Len() == 0
	}, time.Second, 10*time.Millisecond)
}

func (s *ServiceSuite) TestLocaleForConnectionFallsBackToCurrent() {
	ctx := context.Background()
	s.Equal("en-US", s.service.LocaleForConnection(ctx))

	s.service.Registry().Open("c1")
	s.Require().NoError(s.service.Registry().SetLocale(ctx, "c1", "fr"))

	published := connection.ToContext(ctx, "c1")
	s.Equal("fr", s.service.LocaleForConnection(published))
}

func (s *ServiceSuite) TestTranslateUsesConnectionLocale() {
	s.addEnglish()
	s.Require().NoError(s.service.AddTranslations("fr", store.Tree{
		"common": map[string]any{"greeting": "Bonjour"},
	}))

	ctx := context.Background()
	s.service.Registry().Open("c1")
	s.Require().NoError(s.service.Registry().SetLocale(ctx, "c1", "fr"))

	published := connection.ToContext(ctx, "c1")
	s.Equal("Bonjour", s.service.Translate(published, "common.greeting"))
	s.Equal("Hello", s.service.Translate(ctx, "common.greeting"))
}
