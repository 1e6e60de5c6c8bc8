// Command adminkey prints the bcrypt hash to put in ADMIN_API_KEY_HASH.
package main

import (
	"fmt"
	"os"

	"pointshop/internal/auth"
)

func main() {
	if len(os.Args) != 2 || os.Args[1] == "" {
		fmt.Fprintln(os.Stderr, "usage: adminkey <api-key>")
		os.Exit(2)
	}
	hash, err := auth.HashKey(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
