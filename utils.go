package main

import (
	"fmt"
	"io"
	"log"

	"github.com/itsjavi/mediaingest/internal/config"
)

func HandleError(e error) {
	if e != nil {
		log.Fatal(fmt.Sprintf("[%s] ERROR: %s\n", config.AppName, e))
	}
}

func PrintLn(w io.Writer, template string, args ...interface{}) {
	fmt.Fprintf(w, "["+config.AppName+"] "+template+"\n", args...)
}
