package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/kbrown-stack/Api-Blogging-Project/internal/common"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthCheckHandler)
	router.Handler(http.MethodGet, "/v1/metrics", common.MetricsHandler())

	// auth
	router.HandlerFunc(http.MethodPost, "/v1/auth/register", app.registerUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/auth/login", app.loginUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/auth/logout", app.logoutUserHandler)

	// blogs
	router.HandlerFunc(http.MethodGet, "/v1/blogs", app.getPublishedBlogsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/blogs", app.requireAuthUser(app.createBlogHandler))
	router.HandlerFunc(http.MethodGet, "/v1/blogs/:id", app.getBlogHandler)
	router.HandlerFunc(http.MethodPatch, "/v1/blogs/:id", app.requireAuthUser(app.updateBlogHandler))
	router.HandlerFunc(http.MethodPut, "/v1/blogs/:id/state", app.requireAuthUser(app.updateBlogStateHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/blogs/:id", app.requireAuthUser(app.deleteBlogHandler))
	router.HandlerFunc(http.MethodGet, "/v1/me/blogs", app.requireAuthUser(app.getMyBlogsHandler))

	return app.recoverPanic(app.metrics(app.rateLimit(app.logRequest(app.authenticate(router)))))
}
