package shared

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
)

// Helpers for suites that exercise a real postgres instance.

func DeleteDb() {
	if out, err := exec.Command("psql", "-U", "postgres", "-h", "localhost", "-c", "drop database test_kidpass").Output(); err != nil {
		log.Println(string(out))
		log.Fatal(err.Error())
	}
}

func InitDb() {
	if out, err := exec.Command("psql", "-U", "postgres", "-h", "localhost", "-c", "create database test_kidpass").Output(); err != nil {
		log.Println(string(out))
	}

	if out, err := exec.Command("psql", "-U", "postgres", "-h", "localhost", "-c", "grant all privileges on database test_kidpass to postgres").Output(); err != nil {
		log.Fatal("failed to grant privileges:" + string(out))
	}

	var files []string
	err := filepath.Walk(getSqlDirPath(true), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Fatal(err)
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		panic(err)
	}
	for _, file := range files {
		if strings.Contains(file, "up") {
			out, err := exec.Command("psql", "-U", "postgres", "-h", "localhost", "-d", "test_kidpass", "-a", "-f", file).Output()
			if err != nil {
				log.Print(string(out))
				log.Fatal(err.Error())
			}
		}
	}
}

func getSqlDirPath(verbose bool) string {
	root := os.Getenv("KIDPASS_SQL_DIR")
	if root == "" {
		root = "./sql"
		if verbose {
			log.Println("please set env KIDPASS_SQL_DIR")
			log.Println("default to " + root)
		}
	}
	if verbose {
		log.Println("will use " + root)
	}
	return root
}

func NewDbInstance(verbose bool, logger ...interface {
	Print(v ...interface{})
}) *gorm.DB {
	var err error
	var db *gorm.DB
	connectString := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		"localhost",
		"5432",
		"postgres",
		"postgres",
		"test_kidpass")
	db, err = gorm.Open("postgres", connectString)
	if err != nil {
		panic(err)
	}
	db.LogMode(verbose)
	if len(logger) > 0 {
		db.SetLogger(logger[0])
	}
	return db
}
