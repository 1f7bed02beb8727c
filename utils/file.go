package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	FILE_EXT_SHP = ".shp"
	FILE_EXT_CPG = ".cpg"

	UTF8  = "UTF8"
	UTF_8 = "UTF-8"
)

func GetUniqSubDir(parentPath string) (path string, err error) {
	path = filepath.Join(parentPath, uuid.NewString())
	err = os.Mkdir(path, os.ModePerm)
	return
}

func WriteFile(path string, data []byte) (err error) {
	if err = os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return
	}
	return os.WriteFile(path, data, 0644)
}

func GetFilenameWithoutExt(path string) (name string) {
	name = filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(path))
	return
}

// 读取shp旁路的.cpg文件，判断属性表编码是否为UTF-8
func ShpEncodingIsUtf8(shp string) (utf8 bool) {
	cpg := strings.TrimSuffix(shp, FILE_EXT_SHP) + FILE_EXT_CPG
	enc, e := os.ReadFile(cpg)
	if e != nil || len(enc) == 0 {
		return
	}
	encStr := strings.ToUpper(strings.TrimSpace(string(enc)))
	utf8 = encStr == UTF_8 || encStr == UTF8
	return
}
