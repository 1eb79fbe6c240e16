package main

import (
	"os"

	"github.com/woidev/ranch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
