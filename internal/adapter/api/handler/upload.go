package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"skipped/internal/usecase"
	"skipped/pkg/errors"
)

// readUpload opens the multipart file under field. The caller closes the returned closer.
func readUpload(c echo.Context, field string) (usecase.UploadInput, io.Closer, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return usecase.UploadInput{}, nil, errors.BadRequest(field+" is required", err)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return usecase.UploadInput{}, nil, errors.BadRequest("Failed to read uploaded file", err)
	}

	contentType := fileHeader.Header.Get(echo.HeaderContentType)
	if contentType == "" || contentType == echo.MIMEOctetStream {
		head := make([]byte, 512)
		n, _ := io.ReadFull(file, head)
		contentType = http.DetectContentType(head[:n])
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			file.Close()
			return usecase.UploadInput{}, nil, errors.BadRequest("Failed to read uploaded file", err)
		}
	}

	return usecase.UploadInput{
		File:        file,
		Filename:    fileHeader.Filename,
		ContentType: contentType,
		Size:        fileHeader.Size,
	}, file, nil
}
