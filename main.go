package main

import "github.com/quocvuong92/zor/cmd"

func main() {
	cmd.Execute()
}
