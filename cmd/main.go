package main

import (
	"log"

	_ "tx-monitor/docs"
	"tx-monitor/internal/app"
)

// @title           Transaction Monitor API
// @version         1.0
// @description     API мониторинга транзакций с детекцией фрода и SMS-алертами

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app, err := app.NewApp()
	if err != nil {
		log.Fatalf("Ошибка создания приложения: %v", err)
	}

	app.BuildAuthLayer()

	if err := app.BuildTransactionLayer(); err != nil {
		log.Fatalf("Ошибка сборки слоя транзакций: %v", err)
	}
	if err := app.BuildWebhookLayer(); err != nil {
		log.Fatalf("Ошибка сборки слоя вебхуков: %v", err)
	}
	if err := app.BuildStreamLayer(); err != nil {
		log.Fatalf("Ошибка сборки стрим-слоя: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("Ошибка при работе приложения: %v", err)
	}
}
