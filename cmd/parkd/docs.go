package main

// General API documentation for swaggo.
// Regenerate with: swag init -g cmd/parkd/docs.go -o docs
//
// @title           parkd API
// @version         1.0
// @description     HTTP API for parking-lot frame capture, occupancy detection and statistics.
//
// @contact.name   parkd maintainers
// @contact.url    https://github.com/your-org/parkd
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
