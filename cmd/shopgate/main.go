// Package main is the entry point for the shopgate storefront server.
package main

func main() {
	Execute()
}
