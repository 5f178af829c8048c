package sri

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/erickalex14/maximo-lavado-fullstack-sub001/internal/domain/entity"
	pkgsri "github.com/erickalex14/maximo-lavado-fullstack-sub001/pkg/sri"
)

// ── Constantes de ambiente ─────────────────────────────────────────────────────

const (
	recepcionURLPruebas    = "https://celcer.sri.gob.ec/comprobantes-electronicos-ws/RecepcionComprobantesOffline"
	autorizacionURLPruebas = "https://celcer.sri.gob.ec/comprobantes-electronicos-ws/AutorizacionComprobantesOffline"
	recepcionURLProd       = "https://cel.sri.gob.ec/comprobantes-electronicos-ws/RecepcionComprobantesOffline"
	autorizacionURLProd    = "https://cel.sri.gob.ec/comprobantes-electronicos-ws/AutorizacionComprobantesOffline"

	soapNS         = "http://schemas.xmlsoap.org/soap/envelope/"
	nsRecepcion    = "http://ec.gob.sri.ws.recepcion"
	nsAutorizacion = "http://ec.gob.sri.ws.autorizacion"
)

// Estados devueltos por los web services del SRI.
const (
	RecepcionRecibida        = "RECIBIDA"
	RecepcionDevuelta        = "DEVUELTA"
	AutorizacionAutorizado   = "AUTORIZADO"
	AutorizacionNoAutorizado = "NO AUTORIZADO"
	AutorizacionEnProceso    = "EN PROCESO"
)

// ── Puerto (interfaz) ──────────────────────────────────────────────────────────

// ResultadoRecepcion es la respuesta de la fase de recepción.
type ResultadoRecepcion struct {
	Estado  string            // RECIBIDA o DEVUELTA
	Errores []entity.ErrorSRI // mensajes del SRI cuando el estado es DEVUELTA
}

// ResultadoAutorizacion es la respuesta de la fase de autorización.
type ResultadoAutorizacion struct {
	Estado             string // AUTORIZADO, NO AUTORIZADO o EN PROCESO
	NumeroAutorizacion string
	FechaAutorizacion  *time.Time
	XMLAutorizado      string // comprobante autorizado embebido en la respuesta
	Errores            []entity.ErrorSRI
}

// AutorizadorSRI define el puerto de salida hacia los web services del SRI.
// La implementación concreta usa SOAP; para desarrollo se inyecta el simulador.
type AutorizadorSRI interface {
	// EnviarComprobante entrega el XML firmado al WS de recepción.
	EnviarComprobante(ctx context.Context, xmlFirmado []byte) (*ResultadoRecepcion, error)
	// ConsultarAutorizacion consulta el WS de autorización por clave de acceso.
	ConsultarAutorizacion(ctx context.Context, claveAcceso string) (*ResultadoAutorizacion, error)
}

// ── Implementación SOAP ────────────────────────────────────────────────────────

// ClienteSOAP implementa AutorizadorSRI contra los WS SOAP del SRI.
// Usa net/http de la stdlib; no requiere librerías de terceros.
type ClienteSOAP struct {
	httpClient      *http.Client
	recepcionURL    string
	autorizacionURL string

	// Captura opcional de crudos request/response para depuración.
	Captura func(nombre string, data []byte)
}

// NewClienteSOAP construye el cliente para el ambiente dado ("1" pruebas,
// "2" producción) con un timeout de red generoso: el WS del SRI puede tardar
// varios segundos en responder.
func NewClienteSOAP(ambiente string) *ClienteSOAP {
	c := &ClienteSOAP{
		httpClient:      &http.Client{Timeout: 60 * time.Second},
		recepcionURL:    recepcionURLPruebas,
		autorizacionURL: autorizacionURLPruebas,
	}
	if ambiente == pkgsri.AmbienteProduccion {
		c.recepcionURL = recepcionURLProd
		c.autorizacionURL = autorizacionURLProd
	}
	return c
}

// ── Estructuras SOAP de petición ──────────────────────────────────────────────

type soapEnvelope struct {
	XMLName xml.Name `xml:"soapenv:Envelope"`
	XmlnsS  string   `xml:"xmlns:soapenv,attr"`
	XmlnsEC string   `xml:"xmlns:ec,attr"`
	Header  struct{} `xml:"soapenv:Header"`
	Body    soapBody `xml:"soapenv:Body"`
}

type soapBody struct {
	Content interface{}
}

func (b soapBody) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name.Local = "soapenv:Body"
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.Encode(b.Content); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

// validarComprobanteBody cuerpo para la operación validarComprobante (recepción).
type validarComprobanteBody struct {
	XMLName xml.Name `xml:"ec:validarComprobante"`
	XML     string   `xml:"xml"` // comprobante firmado en Base64
}

// autorizacionComprobanteBody cuerpo para la operación autorizacionComprobante.
type autorizacionComprobanteBody struct {
	XMLName     xml.Name `xml:"ec:autorizacionComprobante"`
	ClaveAcceso string   `xml:"claveAccesoComprobante"`
}

// ── Estructuras SOAP de respuesta ─────────────────────────────────────────────

type soapRespuesta struct {
	Body soapRespuestaBody `xml:"Body"`
}

type soapRespuestaBody struct {
	Recepcion    *respuestaRecepcion    `xml:"validarComprobanteResponse>RespuestaRecepcionComprobante"`
	Autorizacion *respuestaAutorizacion `xml:"autorizacionComprobanteResponse>RespuestaAutorizacionComprobante"`
	Fault        *soapFault             `xml:"Fault"`
}

type respuestaRecepcion struct {
	Estado       string           `xml:"estado"`
	Comprobantes []comprobanteRec `xml:"comprobantes>comprobante"`
}

type comprobanteRec struct {
	ClaveAcceso string       `xml:"claveAcceso"`
	Mensajes    []mensajeSRI `xml:"mensajes>mensaje"`
}

type respuestaAutorizacion struct {
	ClaveAcceso    string         `xml:"claveAccesoConsultada"`
	Autorizaciones []autorizacion `xml:"autorizaciones>autorizacion"`
}

type autorizacion struct {
	Estado             string       `xml:"estado"`
	NumeroAutorizacion string       `xml:"numeroAutorizacion"`
	FechaAutorizacion  string       `xml:"fechaAutorizacion"`
	Ambiente           string       `xml:"ambiente"`
	Comprobante        string       `xml:"comprobante"`
	Mensajes           []mensajeSRI `xml:"mensajes>mensaje"`
}

type mensajeSRI struct {
	Identificador string `xml:"identificador"`
	Mensaje       string `xml:"mensaje"`
	InfoAdicional string `xml:"informacionAdicional"`
	Tipo          string `xml:"tipo"`
}

type soapFault struct {
	FaultCode   string `xml:"faultcode"`
	FaultString string `xml:"faultstring"`
}

// ── Operaciones ───────────────────────────────────────────────────────────────

// EnviarComprobante entrega el XML firmado (Base64) al WS de recepción.
func (c *ClienteSOAP) EnviarComprobante(ctx context.Context, xmlFirmado []byte) (*ResultadoRecepcion, error) {
	if len(xmlFirmado) == 0 {
		return nil, fmt.Errorf("soap: comprobante vacío")
	}
	body := &validarComprobanteBody{XML: base64.StdEncoding.EncodeToString(xmlFirmado)}
	raw, err := c.llamar(ctx, c.recepcionURL, nsRecepcion, "recepcion", body)
	if err != nil {
		return nil, err
	}

	var resp soapRespuesta
	if err := xml.Unmarshal(raw, &resp); err != nil {
		// Si no podemos parsear, devolvemos el crudo como rechazo pero no abortamos.
		return &ResultadoRecepcion{
			Estado:  RecepcionDevuelta,
			Errores: []entity.ErrorSRI{sistemaError("no se pudo parsear respuesta SOAP: " + string(raw))},
		}, nil
	}
	if resp.Body.Fault != nil {
		return &ResultadoRecepcion{
			Estado:  RecepcionDevuelta,
			Errores: []entity.ErrorSRI{sistemaError(fmt.Sprintf("SOAP Fault [%s]: %s", resp.Body.Fault.FaultCode, resp.Body.Fault.FaultString))},
		}, nil
	}
	rec := resp.Body.Recepcion
	if rec == nil {
		return &ResultadoRecepcion{
			Estado:  RecepcionDevuelta,
			Errores: []entity.ErrorSRI{sistemaError("respuesta SOAP vacía o inesperada: " + string(raw))},
		}, nil
	}

	resultado := &ResultadoRecepcion{Estado: rec.Estado}
	for _, comp := range rec.Comprobantes {
		for _, m := range comp.Mensajes {
			resultado.Errores = append(resultado.Errores, entity.ErrorSRI{
				Identificador: m.Identificador,
				Mensaje:       m.Mensaje,
				InfoAdicional: m.InfoAdicional,
				Tipo:          m.Tipo,
			})
		}
	}
	return resultado, nil
}

// ConsultarAutorizacion consulta el estado de autorización por clave de acceso.
func (c *ClienteSOAP) ConsultarAutorizacion(ctx context.Context, claveAcceso string) (*ResultadoAutorizacion, error) {
	body := &autorizacionComprobanteBody{ClaveAcceso: claveAcceso}
	raw, err := c.llamar(ctx, c.autorizacionURL, nsAutorizacion, "autorizacion", body)
	if err != nil {
		return nil, err
	}

	var resp soapRespuesta
	if err := xml.Unmarshal(raw, &resp); err != nil {
		return &ResultadoAutorizacion{
			Estado:  AutorizacionEnProceso,
			Errores: []entity.ErrorSRI{sistemaError("no se pudo parsear respuesta SOAP: " + string(raw))},
		}, nil
	}
	if resp.Body.Fault != nil {
		return &ResultadoAutorizacion{
			Estado:  AutorizacionEnProceso,
			Errores: []entity.ErrorSRI{sistemaError(fmt.Sprintf("SOAP Fault [%s]: %s", resp.Body.Fault.FaultCode, resp.Body.Fault.FaultString))},
		}, nil
	}
	aut := resp.Body.Autorizacion
	if aut == nil || len(aut.Autorizaciones) == 0 {
		// Sin registro de autorización todavía: el SRI sigue procesando.
		return &ResultadoAutorizacion{Estado: AutorizacionEnProceso}, nil
	}

	// El SRI puede devolver varios registros; el primero es el vigente.
	a := aut.Autorizaciones[0]
	resultado := &ResultadoAutorizacion{
		Estado:             a.Estado,
		NumeroAutorizacion: a.NumeroAutorizacion,
		XMLAutorizado:      a.Comprobante,
	}
	if a.FechaAutorizacion != "" {
		if t, err := parseFechaSRI(a.FechaAutorizacion); err == nil {
			resultado.FechaAutorizacion = &t
		}
	}
	for _, m := range a.Mensajes {
		resultado.Errores = append(resultado.Errores, entity.ErrorSRI{
			Identificador: m.Identificador,
			Mensaje:       m.Mensaje,
			InfoAdicional: m.InfoAdicional,
			Tipo:          m.Tipo,
		})
	}
	return resultado, nil
}

// llamar serializa el envelope, ejecuta el POST y devuelve el cuerpo crudo.
func (c *ClienteSOAP) llamar(ctx context.Context, url, ns, nombre string, body interface{}) ([]byte, error) {
	envelope := soapEnvelope{
		XmlnsS:  soapNS,
		XmlnsEC: ns,
		Body:    soapBody{Content: body},
	}
	payload, err := xml.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("soap: serializar envelope: %w", err)
	}
	c.capturar(nombre+"_request.xml", payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("soap: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("soap: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("soap: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20)) // max 4 MB (el XML autorizado viene embebido)
	if err != nil {
		return nil, fmt.Errorf("soap: leer respuesta: %w", err)
	}
	c.capturar(nombre+"_response.xml", raw)
	return raw, nil
}

func (c *ClienteSOAP) capturar(nombre string, data []byte) {
	if c.Captura != nil {
		c.Captura(nombre, data)
	}
}

// sistemaError construye un mensaje de falla de infraestructura, distinguible
// de los rechazos genuinos del SRI.
func sistemaError(msg string) entity.ErrorSRI {
	return entity.ErrorSRI{
		Identificador: "SOAP",
		Mensaje:       msg,
		Tipo:          entity.TipoErrorSistema,
	}
}

// parseFechaSRI acepta los dos formatos de fecha que devuelve el SRI.
func parseFechaSRI(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000-07:00", "02/01/2006 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("soap: fecha de autorización no reconocida: %q", s)
}

var _ AutorizadorSRI = (*ClienteSOAP)(nil)
