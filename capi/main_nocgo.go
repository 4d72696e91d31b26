//go:build !cgo

package main

func main() {} // Lets the cgo-free files build and test without cgo
