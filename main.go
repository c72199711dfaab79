package main

import (
	"log"
	"os"

	"deviceloan/app"
	"deviceloan/config"
	"deviceloan/routes"
)

func main() {
	config.LoadEnv()

	application := app.MustNew()
	defer application.Close()

	r := application.Router

	// Health
	r.GET("/healthz", func(c *app.Ctx) { c.JSON(200, app.H{"ok": true}) })

	routes.RegisterRoutes(r, application)

	port := os.Getenv("PORT")
	if port == "" {
		port = application.Config.Port
	}
	log.Printf("listening on :%s", port)
	_ = r.Run(":" + port)
}
