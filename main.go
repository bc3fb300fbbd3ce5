package main

import "github.com/deepserish-bk/db-security-scanner/cmd"

func main() {
	cmd.Execute()
}
