package server

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
)

// SonicSerializer implements echo.JSONSerializer on top of bytedance/sonic.
type SonicSerializer struct {
	api sonic.API
}

func NewSonicSerializer() *SonicSerializer {
	return &SonicSerializer{api: sonic.ConfigStd}
}

func (s *SonicSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := s.api.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (s *SonicSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := s.api.NewDecoder(c.Request().Body).Decode(i)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid input: malformed JSON body").SetInternal(err)
	}
	return nil
}
