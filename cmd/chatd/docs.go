package main

// General API documentation for swaggo. Run `swag init -g cmd/chatd/main.go` to regenerate docs.
//
// @title           chatd API
// @version         1.0
// @description     HTTP API for budget-bounded streaming chat over SSE.
//
// @contact.name   chatd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
