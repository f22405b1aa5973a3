package main

import (
	"github.com/blobbench/blobbench/cmd/blobbench/cmd"
	"github.com/blobbench/blobbench/internal/common"
)

func main() {
	common.ConfigureCommandLineLogging()
	cmd.Execute()
}
