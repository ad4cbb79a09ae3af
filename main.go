/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/brainjam-arena/backend/cmd"

func main() {
	cmd.Execute()
}
