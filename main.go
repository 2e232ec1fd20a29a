/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/azure/exposure-reporter/cmd"

func main() {
	cmd.Execute()
}
