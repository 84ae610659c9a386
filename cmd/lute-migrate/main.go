// Command lute-migrate backs up and inspects the fabric's bbolt
// database ahead of a lute upgrade. Bucket layout in this fabric is
// additive (every component calls EnsureBuckets from its own
// constructor), so there is no schema rewrite to perform here the way
// the teacher's tasks→containers migration did — this tool's job is
// the backup/inspect step that should run before every upgrade.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

var (
	dataDir    = flag.String("data-dir", "./data", "fabric data directory")
	dryRun     = flag.Bool("dry-run", false, "report bucket state without creating a backup")
	backupPath = flag.String("backup", "", "backup file path (default: <data-dir>/lute.db.backup)")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	dbPath := filepath.Join(*dataDir, "lute.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		log.Fatalf("database not found at %s", dbPath)
	}
	log.Printf("database: %s", dbPath)

	if !*dryRun {
		backupFile := *backupPath
		if backupFile == "" {
			backupFile = dbPath + ".backup"
		}
		log.Printf("creating backup: %s", backupFile)
		if err := copyFile(dbPath, backupFile); err != nil {
			log.Fatalf("backup failed: %v", err)
		}
		log.Println("backup created")
	}

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := reportBuckets(db); err != nil {
		log.Fatalf("inspect buckets: %v", err)
	}
}

// reportBuckets logs every top-level bucket and its key count, so an
// operator can confirm EventCore/Sched/Index/kv buckets exist before
// starting the new binary against this data directory.
func reportBuckets(db *bolt.DB) error {
	return db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, b *bolt.Bucket) error {
			count := 0
			if err := b.ForEach(func(k, v []byte) error {
				count++
				return nil
			}); err != nil {
				return err
			}
			log.Printf("bucket %-30s %d keys", string(name), count)
			return nil
		})
	})
}

func copyFile(src, dst string) error {
	input, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, input, 0600)
}
