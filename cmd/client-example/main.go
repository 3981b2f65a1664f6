package main

import (
	"fmt"
	"log"

	"github.com/imagine-hussain/not-redis/pkg/client"
	"github.com/imagine-hussain/not-redis/pkg/config"
)

func main() {
	cfg := config.LoadClientConfig()

	c, err := client.NewWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer c.Close()

	fmt.Println("=== not-redis client example ===")

	if err := c.Ping(); err != nil {
		log.Fatalf("Ping failed: %v", err)
	}
	fmt.Println("PING -> PONG")

	if echoed, err := c.Echo("hello"); err != nil {
		log.Printf("ECHO failed: %v", err)
	} else {
		fmt.Printf("ECHO hello -> %s\n", echoed)
	}

	if prev, existed, err := c.Set("foo", "bar"); err != nil {
		log.Printf("SET failed: %v", err)
	} else if existed {
		fmt.Printf("SET foo bar (previous: %s)\n", prev)
	} else {
		fmt.Println("SET foo bar (no previous value)")
	}

	if value, found, err := c.Get("foo"); err != nil {
		log.Printf("GET failed: %v", err)
	} else if found {
		fmt.Printf("GET foo -> %s\n", value)
	} else {
		fmt.Println("GET foo -> (nil)")
	}

	if removed, existed, err := c.Del("foo"); err != nil {
		log.Printf("DEL failed: %v", err)
	} else if existed {
		fmt.Printf("DEL foo -> removed %s\n", removed)
	} else {
		fmt.Println("DEL foo -> nothing to remove")
	}

	if _, found, err := c.Get("foo"); err != nil {
		log.Printf("GET failed: %v", err)
	} else if !found {
		fmt.Println("GET foo -> (nil), as expected after DEL")
	}

	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("c", "3")
	if err := c.Clear(); err != nil {
		log.Printf("CLR failed: %v", err)
	} else {
		fmt.Println("CLR -> store emptied")
	}

	if _, found, _ := c.Get("a"); !found {
		fmt.Println("GET a -> (nil), as expected after CLR")
	}
}
