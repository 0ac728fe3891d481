package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/vinniefalco/burl"
)

func main() {
	method := flag.String("method", "GET", "HTTP method")
	timeout := flag.Duration("timeout", 30*time.Second, "per-request timeout")
	insecure := flag.Bool("insecure", false, "skip TLS certificate verification")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("usage: burl-fetch [flags] <url>")
	}

	sess := burl.New(
		burl.WithTimeout(*timeout),
		burl.WithVerify(!*insecure),
	)
	defer sess.Close()

	resp, err := sess.Request(context.Background(), *method, flag.Arg(0), nil)
	if err != nil {
		log.Fatal(err)
	}
	body, err := resp.Text()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(resp.Status)
	fmt.Println(body)
}
