package main

import (
	"fmt"
	"log"
	"os"

	"github.com/MrSnakeDoc/nvrsync/internal/app"
	"github.com/MrSnakeDoc/nvrsync/internal/version"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "version" || os.Args[1] == "--version") {
		fmt.Println(version.String())
		return
	}

	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ nvrsync: %v", err)
	}
}
