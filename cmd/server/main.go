package main

import (
	_ "github.com/eleven-am/moodlens/docs"
	"github.com/eleven-am/moodlens/internal/bootstrap"
	"github.com/joho/godotenv"
)

// @title MoodLens API
// @version 1.0.0
// @description Facial mood analysis for images, videos and webcam sessions

// @BasePath /

func main() {
	godotenv.Load()
	bootstrap.Run()
}
