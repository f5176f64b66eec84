package net

import (
	"fmt"
	"log"
	"net"
)

// OutgoingIP finds the preferred local IP address to share with devices on
// the same network.
func OutgoingIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		// no route to the internet, look at the local interfaces instead
		return localIPFallback()
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}

// localIPFallback is used on networks without internet access.
func localIPFallback() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}
	for _, address := range addrs {
		if ipnet, ok := address.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String(), nil
			}
		}
	}
	log.Println("[REMOTE] No suitable local IP found, share link may not work")
	return "127.0.0.1", nil
}

// ShareURL is the address a tablet opens to use the remote canvas.
func ShareURL(port int) string {
	ip, err := OutgoingIP()
	if err != nil {
		ip = firstIPv4().String()
	}
	return fmt.Sprintf("http://%s:%d/", ip, port)
}
