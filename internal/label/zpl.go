// internal/label/zpl.go
package label

// DefaultZPL is the 50x30 mm identification label: QR payload on the left,
// captioned identity fields on the right.
const DefaultZPL = `^XA
^PW399
^LL240
^CI28
^MD15
~SD15

^FO20,50^BQN,2,4
^FDLA,STC:{STC};SN:ATS{SERIAL_NUMBER};IMEI:{IMEI};IMSI:{IMSI};CCID:{CCID};MAC:{MAC_ADDRESS}^FS

^CF0,18,18
^FO185,32.5^FDSTC:^FS
^FO185,70^FDS/N:^FS
^FO185,107.5^FDIMEI:^FS
^FO185,145^FDIMSI:^FS
^FO185,182.5^FDCCID:^FS
^FO185,220^FDMAC:^FS

^CF0,22,16
^FO225,32.5^FD{STC}^FS
^FO225,70^FD{SERIAL_NUMBER}^FS
^FO225,107.5^FD{IMEI}^FS
^FO225,145^FD{IMSI}^FS
^FO225,182.5^FD{CCID}^FS
^FO225,220^FD{MAC_ADDRESS}^FS

^XZ
`
