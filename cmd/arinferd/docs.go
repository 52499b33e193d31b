package main

// General API documentation for swaggo. docs/docs.go is kept in step with
// these annotations by hand; serve it by building with -tags=swagger.
//
// @title           arinferd API
// @version         1.0
// @description     Distributed inference coordinator for AR glasses and nearby compute nodes.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
