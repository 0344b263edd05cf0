package label

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/go-chi/chi/v5"

	"github.com/zombor/expiry-tracker/internal/expiry"
)

var _ = Describe("Server", func() {
	var (
		scanner     *mockScanner
		service     *Service
		server      *Server
		ghttpServer *ghttp.Server
	)

	setupServer := func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP)
	}

	postJSON := func(path string, payload interface{}) *http.Response {
		body, err := json.Marshal(payload)
		Expect(err).NotTo(HaveOccurred())
		resp, err := http.Post(ghttpServer.URL()+path, "application/json", bytes.NewReader(body))
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	postRaw := func(path, body string) *http.Response {
		resp, err := http.Post(ghttpServer.URL()+path, "application/json", bytes.NewBufferString(body))
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	decode := func(resp *http.Response, v interface{}) {
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(json.Unmarshal(body, v)).To(Succeed())
	}

	upload := func(filename, contentType string, data []byte) *http.Response {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		if contentType != "" {
			h.Set("Content-Type", contentType)
		}
		part, err := writer.CreatePart(h)
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(writer.Close()).To(Succeed())

		resp, err := http.Post(ghttpServer.URL()+"/api/scans", writer.FormDataContentType(), body)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	BeforeEach(func() {
		scanner = newMockScanner()
		service = newTestService(scanner)
		server = NewServerWithRouter(service, chi.NewRouter())
		setupServer()
	})

	AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
	})

	Describe("handleHealth", func() {
		It("should return status OK", func() {
			resp, err := http.Get(ghttpServer.URL() + "/health")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			resp.Body.Close()
		})

		It("should allow cross-origin requests", func() {
			req, err := http.NewRequest("GET", ghttpServer.URL()+"/health", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Origin", "http://example.com")
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
		})
	})

	Describe("handleNormalize", func() {
		It("should return the normalized text", func() {
			var out map[string]string
			decode(postJSON("/api/normalize", map[string]string{"text": "Best before: 12/Jan/2025"}), &out)
			Expect(out["text"]).To(Equal("BEST BEF0RE: 12/JAN/2025"))
		})

		It("should reject a malformed body", func() {
			resp := postRaw("/api/normalize", "{")
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("handleExtract", func() {
		It("should return both dates", func() {
			var out struct {
				Mfg *expiry.Date `json:"mfg"`
				Exp *expiry.Date `json:"exp"`
			}
			decode(postJSON("/api/extract", map[string]string{"text": "MFG 01/02/2024 EXP 01/02/2026"}), &out)
			Expect(out.Mfg).To(Equal(mustDate("2024-02-01")))
			Expect(out.Exp).To(Equal(mustDate("2026-02-01")))
		})

		It("should return nulls when there are no dates", func() {
			resp := postJSON("/api/extract", map[string]string{"text": "N0 DATES"})
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(body).To(MatchJSON(`{"mfg": null, "exp": null}`))
		})
	})

	Describe("handleClassify", func() {
		It("should classify against the given day", func() {
			resp := postJSON("/api/classify", map[string]string{"exp": "2025-01-10", "today": "2025-01-05"})
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(body).To(MatchJSON(`{"status": "NEAR_EXPIRY", "days_left": 5, "today": "2025-01-05"}`))
		})

		It("should default to the current day", func() {
			var out map[string]interface{}
			decode(postJSON("/api/classify", map[string]string{"exp": "2026-02-01"}), &out)
			Expect(out["today"]).To(Equal("2026-01-01"))
			Expect(out["status"]).To(Equal("VALID"))
		})

		It("should return UNKNOWN without an expiry date", func() {
			resp := postJSON("/api/classify", map[string]string{"today": "2025-01-05"})
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(body).To(MatchJSON(`{"status": "UNKNOWN", "days_left": null, "today": "2025-01-05"}`))
		})

		It("should reject a malformed today", func() {
			resp := postJSON("/api/classify", map[string]string{"exp": "2025-01-10", "today": "05/01/2025"})
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("handleAnalyze", func() {
		When("text is provided", func() {
			It("should return the scan result", func() {
				var result ScanResult
				decode(postJSON("/api/analyze", map[string]string{"text": "Use by 31.12.2025"}), &result)
				Expect(result.ID).To(Equal("test-id"))
				Expect(result.ExpRaw).To(Equal("31.12.2025"))
				Expect(result.ExpDate).To(Equal(mustDate("2025-12-31")))
				Expect(result.Status).To(Equal(expiry.StatusExpired))
				Expect(*result.DaysLeft).To(Equal(-1))
			})
		})

		When("text is empty", func() {
			It("should return status Bad Request", func() {
				resp := postJSON("/api/analyze", map[string]string{"text": ""})
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("handleScan", func() {
		When("a valid file is uploaded", func() {
			It("should return status Created with the result", func() {
				resp := upload("milk.jpg", "image/jpeg", []byte("fake image"))
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))

				var result ScanResult
				decode(resp, &result)
				Expect(result.Filename).To(Equal("milk.jpg"))
				Expect(result.ContentType).To(Equal("image/jpeg"))
				Expect(result.ExpDate).To(Equal(mustDate("2026-01-05")))
				Expect(scanner.gotData).To(Equal([]byte("fake image")))
			})
		})

		When("the upload has no content type", func() {
			It("should detect it from the extension", func() {
				resp := upload("label.HEIC", "", []byte("fake image"))
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))
				Expect(scanner.gotType).To(Equal("image/heic"))
			})
		})

		When("no file is provided", func() {
			It("should return status Bad Request", func() {
				body := &bytes.Buffer{}
				writer := multipart.NewWriter(body)
				Expect(writer.WriteField("other", "value")).To(Succeed())
				Expect(writer.Close()).To(Succeed())

				resp, err := http.Post(ghttpServer.URL()+"/api/scans", writer.FormDataContentType(), body)
				Expect(err).NotTo(HaveOccurred())
				var out map[string]string
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				decode(resp, &out)
				Expect(out["error"]).To(ContainSubstring("No file was selected"))
			})
		})

		When("the body is not a multipart form", func() {
			It("should return status Bad Request", func() {
				resp := postRaw("/api/scans", "not a form")
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		When("the scanner fails", func() {
			BeforeEach(func() {
				scanner.err = errors.New("scanner exploded")
			})

			It("should return the error", func() {
				resp := upload("milk.png", "image/png", []byte("x"))
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				var out map[string]string
				decode(resp, &out)
				Expect(out["error"]).To(ContainSubstring("scanner exploded"))
			})
		})

		When("no scanner is configured", func() {
			BeforeEach(func() {
				service = NewServiceWithDeps(nil, expiry.MustNew(expiry.DefaultConfig()), Config{},
					&mockIDGenerator{id: "x"}, &mockTimeSource{now: fixedNow})
				server = NewServerWithRouter(service, chi.NewRouter())
				setupServer()
			})

			It("should return status Service Unavailable", func() {
				resp := upload("milk.png", "image/png", []byte("x"))
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusServiceUnavailable))
			})
		})
	})

	Describe("handleManualEntry", func() {
		When("the request is valid", func() {
			It("should return status Created with the entry", func() {
				resp := postJSON("/api/products", map[string]string{
					"product_name": "Yogurt",
					"mfg_date":     "2025-12-01",
					"exp_date":     "2026-01-02",
				})
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))

				var entry ProductStatus
				decode(resp, &entry)
				Expect(entry.ID).To(Equal("test-id"))
				Expect(entry.ProductName).To(Equal("Yogurt"))
				Expect(entry.Status).To(Equal(expiry.StatusNearExpiry))
				Expect(entry.ReminderDue).To(BeTrue())
			})
		})

		When("the product name is missing", func() {
			It("should return status Bad Request", func() {
				resp := postJSON("/api/products", map[string]string{"exp_date": "2026-01-02"})
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				var out map[string]string
				decode(resp, &out)
				Expect(out["error"]).To(Equal(ErrProductNameRequired.Error()))
			})
		})
	})

	Describe("handleDashboard", func() {
		It("should recompute every entry", func() {
			resp := postRaw("/api/dashboard", `{"entries": [
				{"product_name": "Bread", "exp_date": "2025-12-30"},
				{"product_name": "Rice", "exp_date": "2026-06-01"},
				{"product_name": "Jar", "exp_date": null}
			]}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var out dashboardResponse
			decode(resp, &out)
			Expect(out.Today.String()).To(Equal("2026-01-01"))
			Expect(out.NearExpiryDays).To(Equal(7))
			Expect(out.Entries).To(HaveLen(3))
			Expect(out.Entries[0].Status).To(Equal(expiry.StatusExpired))
			Expect(out.Entries[1].Status).To(Equal(expiry.StatusValid))
			Expect(out.Entries[2].Status).To(Equal(expiry.StatusUnknown))
		})

		It("should return an empty list for no entries", func() {
			resp := postRaw("/api/dashboard", `{}`)
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(body).To(MatchJSON(`{"today": "2026-01-01", "near_expiry_days": 7, "entries": []}`))
		})

		It("should reject an invalid date", func() {
			resp := postRaw("/api/dashboard", `{"entries": [{"product_name": "Bread", "exp_date": "2025-02-30"}]}`)
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("handleReport", func() {
		It("should return an XLSX attachment", func() {
			resp := postRaw("/api/report", `{"entries": [{"product_name": "Bread", "exp_date": "2026-01-03"}]}`)
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal(xlsxContentType))
			Expect(resp.Header.Get("Content-Disposition")).To(ContainSubstring("expiry-report.xlsx"))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(body[:2]).To(Equal([]byte("PK")))
		})
	})

	Describe("unknown routes", func() {
		It("should return status Not Found", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/unknown")
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("should return status Method Not Allowed for the wrong method", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/analyze")
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusMethodNotAllowed))
		})
	})
})
