/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/dhanasekaranr/screensync/cmd"

func main() {
	cmd.Execute()
}
