package main

import (
	"github.com/luma/chatd/cmd"
)

func main() {
	cmd.Execute()
}
