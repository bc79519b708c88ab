package main

// @title           TaskFlow API
// @version         1.0
// @description     Personal task management with categories, subtasks, reminders, notifications and daily analytics.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	Execute()
}
