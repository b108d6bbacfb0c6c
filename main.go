package main

import "github.com/SaiNageswarS/krishi-boot/cmd"

func main() {
	cmd.Execute()
}
