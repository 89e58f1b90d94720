package main

import (
	"github.com/bikkkubo/pts-stock/cmd/handlers"
	"github.com/bikkkubo/pts-stock/internal/logger"
)

func main() {
	logger.Init()
	handlers.Execute()
}
