package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (c *controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(c.requestIDMw)
	r.Use(c.requestLoggingMw)

	r.Post("/api/rooms", c.CreateRoom)
	r.HandleFunc("/ws", c.ServeWS)

	return r
}
