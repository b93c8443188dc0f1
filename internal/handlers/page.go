package handlers

import (
	"html/template"
	"net/http"

	"go.uber.org/zap"
)

// pageTheme carries the per-mode strings and colors the page template
// needs. Color fields hold plain hex values; the stylesheet contexts they
// are rendered into accept nothing richer.
type pageTheme struct {
	Title      string
	Badge      string
	GradStart  string
	GradEnd    string
	DragBg     string
	DragBorder string
}

var pageThemes = map[string]pageTheme{
	"hotspot": {
		Title:      "Android File Transfer - Hotspot Mode",
		Badge:      "📶 Hotspot Mode",
		GradStart:  "#11998e",
		GradEnd:    "#38ef7d",
		DragBg:     "#e8f5e9",
		DragBorder: "#4caf50",
	},
	"wifi": {
		Title:      "Android File Transfer - WiFi Mode",
		Badge:      "🌐 WiFi Mode",
		GradStart:  "#667eea",
		GradEnd:    "#764ba2",
		DragBg:     "#e8eaf6",
		DragBorder: "#5c6bc0",
	},
}

// Page serves the transfer page themed for the configured mode. Unknown
// modes render the wifi palette.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	theme, ok := pageThemes[h.theme]
	if !ok {
		theme = pageThemes["wifi"]
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, theme); err != nil {
		h.logger.Error("page render failed", zap.Error(err))
	}
}

var pageTemplate = template.Must(template.New("page").Parse(pageHTML))

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <link rel="icon" href="data:image/svg+xml,<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 100 100'><rect width='100' height='100' rx='20' fill='%234fd1c5'/><text x='50' y='68' font-size='50' text-anchor='middle' fill='white'>📱</text></svg>">
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif;
            background: linear-gradient(135deg, {{.GradStart}} 0%, {{.GradEnd}} 100%);
            min-height: 100vh;
            padding: 20px;
        }
        .container {
            max-width: 800px;
            margin: 0 auto;
            background: white;
            border-radius: 20px;
            box-shadow: 0 20px 60px rgba(0,0,0,0.3);
            overflow: hidden;
        }
        .header {
            background: linear-gradient(135deg, {{.GradStart}} 0%, {{.GradEnd}} 100%);
            color: white;
            padding: 30px;
            text-align: center;
        }
        .header h1 { font-size: 2em; margin-bottom: 10px; }
        .header p { opacity: 0.9; font-size: 1.1em; }
        .mode-badge {
            background: rgba(255,255,255,0.2);
            padding: 5px 15px;
            border-radius: 20px;
            display: inline-block;
            margin-top: 10px;
        }
        .content { padding: 30px; }
        .section {
            margin-bottom: 30px;
            padding: 20px;
            background: #f8f9fa;
            border-radius: 10px;
        }
        .section h2 { color: {{.GradStart}}; margin-bottom: 15px; font-size: 1.5em; }
        .upload-area {
            border: 3px dashed {{.GradStart}};
            border-radius: 10px;
            padding: 40px;
            text-align: center;
            cursor: pointer;
            transition: all 0.3s;
            background: white;
        }
        .upload-area:hover { border-color: {{.GradEnd}}; background: #f8f9fa; }
        .upload-area.dragover { background: {{.DragBg}}; border-color: {{.DragBorder}}; }
        .upload-icon { font-size: 3em; margin-bottom: 10px; }
        input[type="file"] { display: none; }
        .btn {
            background: linear-gradient(135deg, {{.GradStart}} 0%, {{.GradEnd}} 100%);
            color: white;
            border: none;
            padding: 12px 30px;
            border-radius: 25px;
            font-size: 1em;
            cursor: pointer;
            transition: transform 0.2s;
            margin: 5px;
        }
        .btn:hover { transform: translateY(-2px); box-shadow: 0 5px 15px rgba(0,0,0,0.25); }
        .file-list { list-style: none; padding: 0; }
        .file-item {
            background: white;
            padding: 15px;
            margin: 10px 0;
            border-radius: 15px;
            display: flex;
            justify-content: space-between;
            align-items: center;
            box-shadow: 0 2px 8px rgba(0,0,0,0.1);
            flex-wrap: wrap;
            gap: 10px;
        }
        .file-info { flex-grow: 1; min-width: 150px; }
        .file-name { font-weight: bold; color: #333; word-break: break-word; display: flex; align-items: center; gap: 8px; }
        .file-name::before { content: '📄'; }
        .file-name.folder::before { content: '📁'; }
        .file-name.folder { cursor: pointer; }
        .file-size { color: #666; font-size: 0.85em; margin-top: 4px; }
        .select-box { width: 18px; height: 18px; accent-color: {{.GradStart}}; }
        .btn-download {
            background: linear-gradient(135deg, {{.GradStart}} 0%, {{.GradEnd}} 100%);
            color: white;
            border: none;
            padding: 12px 24px;
            border-radius: 25px;
            font-size: 0.95em;
            cursor: pointer;
            transition: all 0.3s;
            display: flex;
            align-items: center;
            gap: 8px;
            text-decoration: none;
            white-space: nowrap;
        }
        .btn-download:hover { transform: translateY(-2px); box-shadow: 0 5px 15px rgba(0,0,0,0.25); }
        .btn-download::before { content: '⬇️'; }
        .progress {
            width: 100%;
            height: 30px;
            background: #e0e0e0;
            border-radius: 15px;
            overflow: hidden;
            margin-top: 10px;
            display: none;
        }
        .progress-bar {
            height: 100%;
            background: linear-gradient(90deg, {{.GradStart}} 0%, {{.GradEnd}} 100%);
            width: 0%;
            transition: width 0.3s;
            display: flex;
            align-items: center;
            justify-content: center;
            color: white;
            font-weight: bold;
        }
        .status { padding: 15px; margin: 15px 0; border-radius: 10px; display: none; }
        .status.success { background: #d4edda; color: #155724; border: 1px solid #c3e6cb; }
        .status.error { background: #f8d7da; color: #721c24; border: 1px solid #f5c6cb; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>📱 Android File Transfer</h1>
            <p>Upload and download files wirelessly</p>
            <div class="mode-badge">{{.Badge}}</div>
        </div>
        <div class="content">
            <div class="section">
                <h2>📤 Upload Files from Android</h2>
                <div class="upload-area" id="uploadArea">
                    <div class="upload-icon">📁</div>
                    <p><strong>Tap here to select files</strong></p>
                    <p style="margin-top: 10px; color: #666;">or drag and drop files here</p>
                </div>
                <input type="file" id="fileInput" multiple>
                <div class="progress" id="uploadProgress">
                    <div class="progress-bar" id="progressBar">0%</div>
                </div>
                <div class="status" id="uploadStatus"></div>
            </div>
            <div class="section">
                <h2>📥 Download Files to Android</h2>
                <p style="margin-bottom: 15px; color: #666;">Available files from PC:</p>
                <ul class="file-list" id="fileList">
                    <li style="text-align: center; color: #666;">Loading files...</li>
                </ul>
                <button class="btn" onclick="refreshFiles()">🔄 Refresh List</button>
                <button class="btn" onclick="downloadSelected()">⬇️ Download Selected</button>
            </div>
        </div>
    </div>
    <script>
        const uploadArea = document.getElementById('uploadArea');
        const fileInput = document.getElementById('fileInput');
        const uploadProgress = document.getElementById('uploadProgress');
        const progressBar = document.getElementById('progressBar');
        const uploadStatus = document.getElementById('uploadStatus');
        const fileList = document.getElementById('fileList');
        let currentPath = '';
        let selected = new Set();
        uploadArea.addEventListener('click', () => fileInput.click());
        fileInput.addEventListener('change', (e) => uploadFiles(e.target.files));
        uploadArea.addEventListener('dragover', (e) => { e.preventDefault(); uploadArea.classList.add('dragover'); });
        uploadArea.addEventListener('dragleave', () => uploadArea.classList.remove('dragover'));
        uploadArea.addEventListener('drop', (e) => { e.preventDefault(); uploadArea.classList.remove('dragover'); uploadFiles(e.dataTransfer.files); });
        async function uploadFiles(files) {
            if (files.length === 0) return;
            uploadProgress.style.display = 'block';
            uploadStatus.style.display = 'none';
            for (let i = 0; i < files.length; i++) {
                const file = files[i];
                const formData = new FormData();
                formData.append('file', file);
                try {
                    const response = await fetch('/upload', { method: 'POST', body: formData });
                    const progress = Math.round(((i + 1) / files.length) * 100);
                    progressBar.style.width = progress + '%';
                    progressBar.textContent = progress + '%';
                    if (!response.ok) throw new Error('Upload failed');
                } catch (error) {
                    showStatus('Error uploading ' + file.name, 'error');
                    return;
                }
            }
            showStatus('Successfully uploaded ' + files.length + ' file(s)!', 'success');
            fileInput.value = '';
            setTimeout(() => { uploadProgress.style.display = 'none'; progressBar.style.width = '0%'; }, 2000);
        }
        function showStatus(message, type) {
            uploadStatus.textContent = message;
            uploadStatus.className = 'status ' + type;
            uploadStatus.style.display = 'block';
            setTimeout(() => uploadStatus.style.display = 'none', 5000);
        }
        function encodePath(p) {
            return p.split('/').map(encodeURIComponent).join('/');
        }
        async function refreshFiles(path) {
            if (path === undefined) path = currentPath;
            try {
                const response = await fetch('/api/files?path=' + encodeURIComponent(path));
                const data = await response.json();
                currentPath = data.currentPath;
                selected = new Set();
                renderEntries(data);
            } catch (error) {
                fileList.innerHTML = '<li style="text-align: center; color: #d32f2f;">Error loading files</li>';
            }
        }
        function renderEntries(data) {
            if (data.items.length === 0 && data.parentPath === null) {
                fileList.innerHTML = '<li style="text-align: center; color: #666;">No files available</li>';
                return;
            }
            fileList.innerHTML = '';
            if (data.parentPath !== null) {
                fileList.appendChild(parentRow(data.parentPath));
            }
            data.items.forEach((item) => fileList.appendChild(entryRow(item)));
        }
        function parentRow(parent) {
            const li = document.createElement('li');
            li.className = 'file-item';
            const info = document.createElement('div');
            info.className = 'file-info';
            const name = document.createElement('div');
            name.className = 'file-name folder';
            name.textContent = '..';
            name.addEventListener('click', () => refreshFiles(parent));
            info.appendChild(name);
            li.appendChild(info);
            return li;
        }
        function entryRow(item) {
            const li = document.createElement('li');
            li.className = 'file-item';
            const box = document.createElement('input');
            box.type = 'checkbox';
            box.className = 'select-box';
            box.addEventListener('change', () => {
                if (box.checked) selected.add(item.path); else selected.delete(item.path);
            });
            li.appendChild(box);
            const info = document.createElement('div');
            info.className = 'file-info';
            const name = document.createElement('div');
            name.className = item.type === 'folder' ? 'file-name folder' : 'file-name';
            name.textContent = item.name;
            if (item.type === 'folder') {
                name.addEventListener('click', () => refreshFiles(item.path));
            }
            const size = document.createElement('div');
            size.className = 'file-size';
            size.textContent = formatSize(item.size);
            info.appendChild(name);
            info.appendChild(size);
            li.appendChild(info);
            const link = document.createElement('a');
            link.className = 'btn-download';
            link.textContent = 'Download';
            link.href = (item.type === 'folder' ? '/download-folder/' : '/download/') + encodePath(item.path);
            if (item.type === 'file') link.setAttribute('download', '');
            li.appendChild(link);
            return li;
        }
        function downloadSelected() {
            const paths = Array.from(selected);
            if (paths.length === 0) {
                showStatus('No items selected', 'error');
                return;
            }
            window.location.href = '/download-selected?items=' + encodeURIComponent(paths.join(','));
        }
        function formatSize(bytes) {
            if (bytes === 0) return '0 Bytes';
            const k = 1024;
            const sizes = ['Bytes', 'KB', 'MB', 'GB'];
            const i = Math.floor(Math.log(bytes) / Math.log(k));
            return Math.round(bytes / Math.pow(k, i) * 100) / 100 + ' ' + sizes[i];
        }
        refreshFiles('');
    </script>
</body>
</html>`
