package main

import (
	"os"

	"github.com/jengzang/popquery-backend-go/internal/cli"
)

func main() {
	// 执行命令，错误已输出到 stderr
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
