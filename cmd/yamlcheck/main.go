package main

import (
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/cli"
)

func main() {
	cli.Main()
}
