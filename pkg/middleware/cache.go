package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type bodyCacheWriter struct {
	http.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Cache кеширует в памяти успешные ответы на GET по полному URI.
// Подходит только для данных, которые не зависят от пользователя.
func Cache(store *cache.Cache, duration time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet || duration <= 0 {
				return next(c)
			}

			key := c.Request().RequestURI
			if resp, found := store.Get(key); found {
				cached := resp.(cachedResponse)
				for k, v := range cached.headers {
					c.Response().Header()[k] = v
				}
				c.Response().WriteHeader(cached.status)
				_, err := c.Response().Write(cached.body)
				return err
			}

			writer := &bodyCacheWriter{ResponseWriter: c.Response().Writer, body: bytes.NewBuffer(nil)}
			c.Response().Writer = writer

			if err := next(c); err != nil {
				return err
			}

			if status := c.Response().Status; status >= 200 && status < 300 {
				headers := c.Response().Header().Clone()
				headers.Del(echo.HeaderXRequestID)
				store.Set(key, cachedResponse{
					status:  status,
					headers: headers,
					body:    writer.body.Bytes(),
				}, duration)
			}
			return nil
		}
	}
}
