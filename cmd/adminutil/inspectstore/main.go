// inspectstore opens a LevelDB tradepost store offline and prints how
// many listings and orders it holds. Run it while the server is
// stopped; LevelDB is single-process.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/tradepost-dev/tradepost/internal/store"
)

func readCount(kv store.KV, key string) uint64 {
	raw, ok, err := kv.Get(key)
	if err != nil {
		log.Fatalf("read %s: %v", key, err)
	}
	if !ok {
		return 0
	}
	var n uint64
	if err := json.Unmarshal(raw, &n); err != nil {
		log.Fatalf("decode %s: %v", key, err)
	}
	return n
}

func main() {
	path := flag.String("path", "tradepost.db", "path to the LevelDB store")
	flag.Parse()

	kv, err := store.OpenLevel(*path)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer kv.Close()

	listings := readCount(kv, "listing:count")
	orders := readCount(kv, "order:count")

	fmt.Printf("store:    %s\n", *path)
	fmt.Printf("listings: %d\n", listings)
	fmt.Printf("orders:   %d\n", orders)
}
